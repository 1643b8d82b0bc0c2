package rules

import (
	"fmt"
	"strings"

	"riskline/internal/model"
)

// PackageInstallWithoutVersion flags package installs that pin no version.
type PackageInstallWithoutVersion struct{}

func NewPackageInstallWithoutVersion() Rule { return PackageInstallWithoutVersion{} }

func (PackageInstallWithoutVersion) Name() string         { return "package_install_without_version" }
func (PackageInstallWithoutVersion) Enabled() bool        { return true }
func (PackageInstallWithoutVersion) SeparateReport() bool { return false }
func (PackageInstallWithoutVersion) AllOKMessage() string { return "" }

func (PackageInstallWithoutVersion) Check(taskcalls []model.TaskCall, _ Context) (bool, any, string) {
	var lines []string
	for i := range taskcalls {
		tc := &taskcalls[i]
		for _, anno := range tc.RiskAnnotations(model.RiskTypePackageInstall) {
			for _, data := range append([]map[string]any{anno.Data}, anno.ResolvedData...) {
				if unpinnedInstall(data) {
					lines = append(lines, fmt.Sprintf("- package %v installed without version pin (%s)", data["pkg"], tc.Spec.DefinedIn))
				}
			}
		}
	}
	return len(lines) > 0, nil, strings.Join(lines, "\n")
}

func unpinnedInstall(data map[string]any) bool {
	if data == nil {
		return false
	}
	if _, ok := data["pkg"]; !ok {
		return false
	}
	if _, ok := data["version"]; ok {
		return false
	}
	if del, ok := data["delete"].(bool); ok && del {
		return false
	}
	return true
}
