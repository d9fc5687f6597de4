package config

// SchoolConfig holds the user-supplied inputs for one institution.
type SchoolConfig struct {
	// Website overrides the website recorded in the dataset.
	Website string `yaml:"website,omitempty"`

	// InspectionPriorities are pasted from the latest inspection report.
	InspectionPriorities []string `yaml:"inspection_priorities,omitempty"`

	// Strategies are strategic priorities entered by hand, used in place
	// of or alongside those found on the website.
	Strategies []string `yaml:"strategies,omitempty"`

	// Priorities are any additional priorities.
	Priorities []string `yaml:"priorities,omitempty"`
}

// File represents the structure of the .schoolscan configuration file.
type File struct {
	// Dataset is the path of the establishment dataset CSV.
	Dataset string `yaml:"dataset,omitempty"`

	// Catalog is the path of a catalog YAML replacing the embedded one.
	Catalog string `yaml:"catalog,omitempty"`

	// ReportURLTemplate is the inspection report URL fallback.
	ReportURLTemplate string `yaml:"report_url_template,omitempty"`

	// Defaults apply to every school.
	Defaults SchoolConfig `yaml:"defaults,omitempty"`

	// Schools maps URNs to their school-specific configuration.
	Schools map[string]SchoolConfig `yaml:"schools,omitempty"`
}

// GetSchoolConfig returns the configuration for a URN merged with the defaults.
// A school website replaces the default one. Priority lists are combined,
// defaults first.
func (cf *File) GetSchoolConfig(urn string) SchoolConfig {
	result := SchoolConfig{
		Website:              cf.Defaults.Website,
		InspectionPriorities: append([]string(nil), cf.Defaults.InspectionPriorities...),
		Strategies:           append([]string(nil), cf.Defaults.Strategies...),
		Priorities:           append([]string(nil), cf.Defaults.Priorities...),
	}

	if school, ok := cf.Schools[urn]; ok {
		if school.Website != "" {
			result.Website = school.Website
		}
		result.InspectionPriorities = append(result.InspectionPriorities, school.InspectionPriorities...)
		result.Strategies = append(result.Strategies, school.Strategies...)
		result.Priorities = append(result.Priorities, school.Priorities...)
	}

	return result
}
