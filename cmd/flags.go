package cmd

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func logLevelFlag(v *viper.Viper) string {
	return v.GetString("log.level")
}

func addLogLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-level", "info", "log level")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func logFormatFlag(v *viper.Viper) string {
	return v.GetString("log.format")
}

func addLogFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-format", "json", "log format")
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindEnv("log.format", "LOG_FORMAT")
}

func nessieURIFlag(v *viper.Viper) string {
	return v.GetString("nessie.uri")
}

func addNessieURIFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("nessie-uri", "http://localhost:19120/api/v2", "Nessie v2 api root")
	_ = v.BindPFlag("nessie.uri", flags.Lookup("nessie-uri"))
	_ = v.BindEnv("nessie.uri", "NESSIE_URI")
}

func nessieTokenFlag(v *viper.Viper) string {
	return v.GetString("nessie.token")
}

func addNessieTokenFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("nessie-token", "", "Bearer token sent to nessie")
	_ = v.BindPFlag("nessie.token", flags.Lookup("nessie-token"))
	_ = v.BindEnv("nessie.token", "NESSIE_TOKEN")
}

func branchFlag(v *viper.Viper) string {
	return v.GetString("nessie.branch")
}

func addBranchFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("branch", "main", "Branch the catalog reads and commits to")
	_ = v.BindPFlag("nessie.branch", flags.Lookup("branch"))
	_ = v.BindEnv("nessie.branch", "NESSIE_BRANCH")
}

func timeoutFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("nessie.timeout")
}

func addTimeoutFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("timeout", 30*time.Second, "Timeout of a single nessie request")
	_ = v.BindPFlag("nessie.timeout", flags.Lookup("timeout"))
	_ = v.BindEnv("nessie.timeout", "NESSIE_TIMEOUT")
}

func warehouseFlag(v *viper.Viper) string {
	return v.GetString("catalog.warehouse")
}

func addWarehouseFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("warehouse", "", "Warehouse root, a directory or a s3://, gs://, azblob://, file:// or mem:// url")
	_ = v.BindPFlag("catalog.warehouse", flags.Lookup("warehouse"))
	_ = v.BindEnv("catalog.warehouse", "CATALOG_WAREHOUSE")
}

func authorFlag(v *viper.Viper) string {
	return v.GetString("catalog.author")
}

func addAuthorFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("author", "nessiecatalog", "Author recorded on catalog commits")
	_ = v.BindPFlag("catalog.author", flags.Lookup("author"))
	_ = v.BindEnv("catalog.author", "CATALOG_AUTHOR")
}

func addressFlag(v *viper.Viper) string {
	return v.GetString("address")
}

func addAddressFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("address", ":8181", "Address to bind to (host:port)")
	_ = v.BindPFlag("address", flags.Lookup("address"))
	_ = v.BindEnv("address", "CATALOG_ADDRESS")
}

func basePathFlag(v *viper.Viper) string {
	return v.GetString("base_path")
}

func addBasePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("base-path", "/v1", "Base path to export the catalog api on")
	_ = v.BindPFlag("base_path", flags.Lookup("base-path"))
	_ = v.BindEnv("base_path", "CATALOG_BASE_PATH")
}

func serviceHealthzEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.healthz.enabled")
}

func addServiceHealthzEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-healthz-enabled", false, "Enable healthz service")
	_ = v.BindPFlag("service.healthz.enabled", flags.Lookup("service-healthz-enabled"))
}

func servicePrometheusEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.prometheus.enabled")
}

func addServicePrometheusEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-prometheus-enabled", false, "Enable prometheus service")
	_ = v.BindPFlag("service.prometheus.enabled", flags.Lookup("service-prometheus-enabled"))
}

func otelEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("otel.enabled")
}

func addOtelEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("otel-enabled", false, "Enable otel service")
	_ = v.BindPFlag("otel.enabled", flags.Lookup("otel-enabled"))
	_ = v.BindEnv("otel.enabled", "OTEL_ENABLED")
}

func cascadeFlag(v *viper.Viper) bool {
	return v.GetBool("cascade")
}

func addCascadeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("cascade", false, "Also drop everything below the namespace")
	_ = v.BindPFlag("cascade", flags.Lookup("cascade"))
}

func purgeFlag(v *viper.Viper) bool {
	return v.GetBool("purge")
}

func addPurgeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("purge", false, "Also delete the table files")
	_ = v.BindPFlag("purge", flags.Lookup("purge"))
}

func propertiesFlag(v *viper.Viper) map[string]string {
	return v.GetStringMapString("properties")
}

func addPropertiesFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.StringToString("property", nil, "Property as key=value, repeatable")
	_ = v.BindPFlag("properties", flags.Lookup("property"))
}

func schemaFlag(v *viper.Viper) string {
	return v.GetString("schema")
}

func addSchemaFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("schema", "", "Table schema as iceberg json")
	_ = v.BindPFlag("schema", flags.Lookup("schema"))
}

func locationFlag(v *viper.Viper) string {
	return v.GetString("location")
}

func addLocationFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("location", "", "Table location, defaults to a directory below the warehouse")
	_ = v.BindPFlag("location", flags.Lookup("location"))
}

func fromFlag(v *viper.Viper) string {
	return v.GetString("from")
}

func addFromFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("from", "main", "Source reference of the new reference")
	_ = v.BindPFlag("from", flags.Lookup("from"))
}

func tagFlag(v *viper.Viper) bool {
	return v.GetBool("tag")
}

func addTagFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("tag", false, "Create a tag instead of a branch")
	_ = v.BindPFlag("tag", flags.Lookup("tag"))
}

func maxRecordsFlag(v *viper.Viper) int {
	return v.GetInt("max_records")
}

func addMaxRecordsFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("max-records", 20, "Number of commits to show")
	_ = v.BindPFlag("max_records", flags.Lookup("max-records"))
}
