package catalog

import (
	"fmt"
	"strings"
)

// Module is one of the console's four product areas.
type Module string

const (
	ModuleXDR     Module = "XDR"
	ModuleXDRPlus Module = "XDR+"
	ModuleOXDR    Module = "OXDR"
	ModuleGSOS    Module = "GSOS"
)

func Modules() []Module {
	return []Module{ModuleXDR, ModuleXDRPlus, ModuleOXDR, ModuleGSOS}
}

func ParseModule(s string) (Module, error) {
	v := strings.TrimSpace(s)
	for _, m := range Modules() {
		if string(m) == v {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown module: %q", s)
}

// AppType identifies the kind of integrated application.
type AppType string

const (
	AppTypeDefectDojo AppType = "DefectDojo"
	AppTypeTheHive    AppType = "TheHive"
	AppTypeOpenSearch AppType = "OpenSearch"
	AppTypeWazuh      AppType = "Wazuh"
	AppTypeSuricata   AppType = "Suricata"
	AppTypeElastic    AppType = "Elastic"
	AppTypeSplunk     AppType = "Splunk"
	AppTypeMISP       AppType = "MISP"
	AppTypeCortex     AppType = "Cortex"
	AppTypeCustom     AppType = "Custom"
)

func AppTypes() []AppType {
	return []AppType{
		AppTypeDefectDojo, AppTypeTheHive, AppTypeOpenSearch, AppTypeWazuh,
		AppTypeSuricata, AppTypeElastic, AppTypeSplunk, AppTypeMISP,
		AppTypeCortex, AppTypeCustom,
	}
}

func ParseAppType(s string) (AppType, error) {
	v := strings.TrimSpace(s)
	for _, t := range AppTypes() {
		if string(t) == v {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown app type: %q", s)
}
