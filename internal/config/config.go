// Package config reads the warehouse configuration file into a dwh.Config.
//
// Two encodings are accepted. The INI form is the classic dwh.cfg:
//
//	[CLUSTER]
//	HOST=dwhcluster.abc123.us-west-2.redshift.amazonaws.com
//	DB_NAME=dwh
//	DB_USER=dwhuser
//	DB_PASSWORD=...
//	DB_PORT=5439
//
//	[IAM_ROLE]
//	ARN='arn:aws:iam::123456789012:role/dwhRole'
//
//	[S3]
//	LOG_DATA='s3://udacity-dend/log_data'
//	LOG_JSONPATH='s3://udacity-dend/log_json_path.json'
//	SONG_DATA='s3://udacity-dend/song_data'
//
// Files ending in .yaml or .yml carry the same sections as lower-case
// mappings (cluster.host, iam_role.arn, ...). Every key can be overridden
// from the environment as DWH_<SECTION>_<KEY>, e.g. DWH_CLUSTER_DB_PASSWORD.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "DWH_"

// Section and key names as they appear in dwh.cfg.
const (
	SectionCluster   = "CLUSTER"
	SectionIAMRole   = "IAM_ROLE"
	SectionS3        = "S3"
	SectionWarehouse = "WAREHOUSE"
	SectionMetrics   = "METRICS"
)

// values holds raw settings keyed by upper-case section, then upper-case key.
type values map[string]map[string]string

func (v values) get(section, key string) string {
	return v[section][key]
}

func (v values) set(section, key, value string) {
	if v[section] == nil {
		v[section] = make(map[string]string)
	}
	v[section][key] = value
}

// knownKeys lists every key that has an environment override.
var knownKeys = map[string][]string{
	SectionCluster:   {"HOST", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_PORT", "REGION", "SSLMODE", "CLUSTER_ID"},
	SectionIAMRole:   {"ARN"},
	SectionS3:        {"LOG_DATA", "LOG_JSONPATH", "SONG_DATA", "REGION"},
	SectionWarehouse: {"DIALECT", "AUTH_METHOD", "CONNECT_RETRIES"},
	SectionMetrics:   {"PUSHGATEWAY_URL", "JOB"},
}

// Load reads path, applies environment overrides and defaults, and
// validates the result. All problems are reported together, each wrapping
// dwh.ErrConfiguration.
func Load(path string) (*dwh.Config, error) {
	raw, err := readFile(path)
	if err != nil {
		return nil, err
	}
	applyEnv(raw)

	cfg, err := build(raw)
	if err != nil {
		return nil, err
	}
	cfg.Source = path
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: read %s: %w", dwh.ErrConfiguration, path, err)
	}
	return nil
}

func readFile(path string) (values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %w: %s", dwh.ErrConfiguration, ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", dwh.ErrConfiguration, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(data, path)
	default:
		return parseINI(data, path)
	}
}

func parseINI(data []byte, path string) (values, error) {
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", dwh.ErrConfiguration, path, err)
	}

	raw := make(values)
	for _, section := range f.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		name := strings.ToUpper(section.Name())
		for _, key := range section.Keys() {
			raw.set(name, strings.ToUpper(key.Name()), strings.TrimSpace(key.String()))
		}
	}
	return raw, nil
}

func parseYAML(data []byte, path string) (values, error) {
	var doc map[string]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", dwh.ErrConfiguration, path, err)
	}

	raw := make(values)
	for section, keys := range doc {
		for key, value := range keys {
			if value == nil {
				continue
			}
			raw.set(strings.ToUpper(section), strings.ToUpper(key), strings.TrimSpace(fmt.Sprint(value)))
		}
	}
	return raw, nil
}

// applyEnv overlays DWH_<SECTION>_<KEY> variables that are set.
func applyEnv(raw values) {
	for section, keys := range knownKeys {
		for _, key := range keys {
			if value, ok := os.LookupEnv(EnvPrefix + section + "_" + key); ok {
				raw.set(section, key, value)
			}
		}
	}
}

func build(raw values) (*dwh.Config, error) {
	var errs []error

	cfg := &dwh.Config{
		Cluster: dwh.ClusterConfig{
			Host:      raw.get(SectionCluster, "HOST"),
			Database:  raw.get(SectionCluster, "DB_NAME"),
			User:      raw.get(SectionCluster, "DB_USER"),
			Password:  raw.get(SectionCluster, "DB_PASSWORD"),
			Region:    withDefault(raw.get(SectionCluster, "REGION"), dwh.DefaultRegion),
			SSLMode:   raw.get(SectionCluster, "SSLMODE"),
			ClusterID: raw.get(SectionCluster, "CLUSTER_ID"),
		},
		IAMRole: dwh.IAMRoleConfig{ARN: raw.get(SectionIAMRole, "ARN")},
		S3: dwh.S3Config{
			LogData:     raw.get(SectionS3, "LOG_DATA"),
			LogJSONPath: raw.get(SectionS3, "LOG_JSONPATH"),
			SongData:    raw.get(SectionS3, "SONG_DATA"),
		},
		Warehouse: dwh.WarehouseConfig{
			Dialect: dwh.Dialect(strings.ToLower(withDefault(raw.get(SectionWarehouse, "DIALECT"), string(dwh.DialectRedshift)))),
		},
		Metrics: dwh.MetricsConfig{
			PushgatewayURL: raw.get(SectionMetrics, "PUSHGATEWAY_URL"),
			Job:            withDefault(raw.get(SectionMetrics, "JOB"), dwh.DefaultMetricsJob),
		},
	}
	cfg.S3.Region = withDefault(raw.get(SectionS3, "REGION"), cfg.Cluster.Region)

	if port := raw.get(SectionCluster, "DB_PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			errs = append(errs, fmt.Errorf("CLUSTER.DB_PORT %q is not a number: %w", port, dwh.ErrConfiguration))
		} else {
			cfg.Cluster.Port = n
		}
	}

	if retries := raw.get(SectionWarehouse, "CONNECT_RETRIES"); retries != "" {
		n, err := strconv.Atoi(retries)
		if err != nil {
			errs = append(errs, fmt.Errorf("WAREHOUSE.CONNECT_RETRIES %q is not a number: %w", retries, dwh.ErrConfiguration))
		} else {
			cfg.Warehouse.ConnectRetries = n
		}
	}

	method, err := dwh.ParseAuthMethod(strings.ToLower(raw.get(SectionWarehouse, "AUTH_METHOD")))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Warehouse.AuthMethod = method

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
