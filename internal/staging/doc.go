// Package staging performs the bulk copy of raw JSON into a staging table
// on the client side, for warehouses that cannot COPY from S3 themselves.
//
// Records are read from a sources.Store and streamed through the
// PostgreSQL COPY protocol. Event records are mapped column by column with
// a JSONPaths document; song records match object keys to column names.
package staging
