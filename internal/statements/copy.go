package statements

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

var regionPattern = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-\d$`)

// CopyEvents builds the bulk copy of the event log into staging_events.
func CopyEvents(src dwh.CopySource, d dwh.Dialect) (dwh.Statement, error) {
	if src.IsAuto() {
		return dwh.Statement{}, fmt.Errorf("events copy needs a JSONPaths document: %w", dwh.ErrConfiguration)
	}
	return buildCopy(StagingEvents, src, d)
}

// CopySongs builds the bulk copy of the song metadata into staging_songs.
func CopySongs(src dwh.CopySource, d dwh.Dialect) (dwh.Statement, error) {
	src.JSONShape = "auto"
	return buildCopy(StagingSongs, src, d)
}

func buildCopy(t Table, src dwh.CopySource, d dwh.Dialect) (dwh.Statement, error) {
	if err := ValidateCopySource(src, d); err != nil {
		return dwh.Statement{}, fmt.Errorf("copy into %s: %w", t.Name, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "COPY %s FROM %s credentials %s region %s JSON ",
		t.Name,
		quote(src.URI),
		quote("aws_iam_role="+src.CredentialRole),
		quote(src.Region))
	if src.IsAuto() {
		b.WriteString("'auto'")
	} else {
		b.WriteString(quote(src.JSONShape))
	}
	if src.EpochMillis {
		b.WriteString(" timeformat 'epochmillisecs'")
	}

	s := src
	return dwh.Statement{
		Kind:    dwh.KindCopy,
		Name:    "copy " + t.Name,
		Table:   t.Name,
		SQL:     b.String(),
		Copy:    &s,
		Columns: t.ColumnNames(),
	}, nil
}

// ValidateCopySource checks every literal that ends up in a COPY statement.
// Redshift reads from S3 only; the postgres dialect also accepts local paths.
func ValidateCopySource(src dwh.CopySource, d dwh.Dialect) error {
	var errs []string

	if err := validateLocation("source", src.URI, d); err != nil {
		errs = append(errs, err.Error())
	}
	if !src.IsAuto() {
		if err := validateLocation("JSONPaths", src.JSONShape, d); err != nil {
			errs = append(errs, err.Error())
		}
	}

	parsed, err := arn.Parse(src.CredentialRole)
	switch {
	case err != nil:
		errs = append(errs, fmt.Sprintf("credential role %q: %v", src.CredentialRole, err))
	case parsed.Service != "iam" || !strings.HasPrefix(parsed.Resource, "role/"):
		errs = append(errs, fmt.Sprintf("credential role %q is not an IAM role ARN", src.CredentialRole))
	}

	if !regionPattern.MatchString(src.Region) {
		errs = append(errs, fmt.Sprintf("region %q is not an AWS region", src.Region))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(errs, "; "), dwh.ErrConfiguration)
	}
	return nil
}

func validateLocation(what, loc string, d dwh.Dialect) error {
	if loc == "" {
		return fmt.Errorf("%s location is empty", what)
	}
	if IsS3URI(loc) {
		u, err := url.Parse(loc)
		if err != nil || u.Host == "" {
			return fmt.Errorf("%s location %q has no bucket", what, loc)
		}
		return nil
	}
	if d == dwh.DialectRedshift {
		return fmt.Errorf("%s location %q must be an s3:// URI", what, loc)
	}
	if strings.Contains(loc, "://") {
		return fmt.Errorf("%s location %q has an unsupported scheme", what, loc)
	}
	return nil
}

// IsS3URI reports whether loc names an S3 object or prefix.
func IsS3URI(loc string) bool {
	return strings.HasPrefix(loc, "s3://")
}

// quote renders s as a single-quoted SQL literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
