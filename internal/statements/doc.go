// Package statements renders the warehouse schema, bulk-copy, transform and
// analytics SQL as typed dwh.Statement descriptors.
//
// Every builder takes the dialect explicitly; nothing here reads
// configuration or touches a connection. Sequences returned by the
// builders are executed in slice order by services.Runner.
package statements
