package annotator

import (
	"riskline/internal/model"
)

// packageModules are the package-manager modules this annotator understands,
// keyed by fully-qualified resolved name.
var packageModules = map[string]bool{
	"ansible.builtin.apt":        true,
	"ansible.builtin.yum":        true,
	"ansible.builtin.dnf":        true,
	"ansible.builtin.package":    true,
	"ansible.builtin.pip":        true,
	"community.general.homebrew": true,
}

// PackageInstall annotates package-manager tasks with what gets installed or
// removed.
type PackageInstall struct{}

func NewPackageInstall() Annotator { return PackageInstall{} }

func (PackageInstall) Name() string  { return "package-install" }
func (PackageInstall) Enabled() bool { return true }
func (PackageInstall) Type() string  { return model.TypeRiskAnnotation }

func (PackageInstall) Match(tc *model.TaskCall) bool {
	return packageModules[tc.ResolvedName]
}

func (p PackageInstall) Run(tc *model.TaskCall) []model.Annotation {
	if !p.Match(tc) {
		return nil
	}
	anno := model.RiskAnnotation{
		Category: model.RiskTypePackageInstall,
		Data:     packageFields(tc.Spec.ModuleOptions),
	}
	for _, resolved := range tc.ResolvedModuleOptions() {
		anno.ResolvedData = append(anno.ResolvedData, packageFields(resolved))
	}
	return []model.Annotation{anno}
}

// packageFields concretizes package-module options. Unrecognized keys are
// dropped; a non-mapping value yields an empty mapping.
func packageFields(options any) map[string]any {
	data := map[string]any{}
	opts := optionsMap(options)
	if opts == nil {
		return data
	}
	if v, ok := opts["name"]; ok {
		data["pkg"] = v
	}
	if v, ok := opts["version"]; ok {
		data["version"] = v
	}
	if v, ok := opts["state"]; ok && v == "absent" {
		data["delete"] = true
	}
	return data
}
