package catalog

// AppTemplate is a read-only preset the console offers when registering
// a new integrated application.
type AppTemplate struct {
	Name        string  `json:"name"`
	AppType     AppType `json:"app_type"`
	DefaultPort int     `json:"default_port"`
	AuthKind    string  `json:"auth_kind"`
	Description string  `json:"description"`
}

var appTemplates = []AppTemplate{
	{Name: "DefectDojo", AppType: AppTypeDefectDojo, DefaultPort: 8080, AuthKind: "api_key", Description: "Vulnerability management and orchestration"},
	{Name: "TheHive", AppType: AppTypeTheHive, DefaultPort: 9000, AuthKind: "api_key", Description: "Security incident response platform"},
	{Name: "OpenSearch", AppType: AppTypeOpenSearch, DefaultPort: 9200, AuthKind: "basic", Description: "Search and analytics engine"},
	{Name: "Wazuh", AppType: AppTypeWazuh, DefaultPort: 55000, AuthKind: "basic", Description: "Host intrusion detection"},
	{Name: "Suricata", AppType: AppTypeSuricata, DefaultPort: 0, AuthKind: "none", Description: "Network threat detection engine"},
	{Name: "Elastic", AppType: AppTypeElastic, DefaultPort: 9200, AuthKind: "api_key", Description: "Elasticsearch stack"},
	{Name: "Splunk", AppType: AppTypeSplunk, DefaultPort: 8089, AuthKind: "basic", Description: "Data platform for security analytics"},
	{Name: "MISP", AppType: AppTypeMISP, DefaultPort: 443, AuthKind: "api_key", Description: "Threat intelligence sharing"},
	{Name: "Cortex", AppType: AppTypeCortex, DefaultPort: 9001, AuthKind: "api_key", Description: "Observable analysis engine"},
	{Name: "Custom", AppType: AppTypeCustom, DefaultPort: 0, AuthKind: "none", Description: "Custom integration"},
}

// Templates returns a copy so callers cannot mutate the catalogue.
func Templates() []AppTemplate {
	out := make([]AppTemplate, len(appTemplates))
	copy(out, appTemplates)
	return out
}
