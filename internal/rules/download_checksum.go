package rules

import (
	"fmt"
	"strings"

	"riskline/internal/model"
)

// DownloadWithoutChecksum flags inbound transfers with no integrity check.
type DownloadWithoutChecksum struct{}

func NewDownloadWithoutChecksum() Rule { return DownloadWithoutChecksum{} }

func (DownloadWithoutChecksum) Name() string         { return "download_without_checksum" }
func (DownloadWithoutChecksum) Enabled() bool        { return true }
func (DownloadWithoutChecksum) SeparateReport() bool { return false }
func (DownloadWithoutChecksum) AllOKMessage() string { return "" }

func (DownloadWithoutChecksum) Check(taskcalls []model.TaskCall, _ Context) (bool, any, string) {
	var lines []string
	for i := range taskcalls {
		tc := &taskcalls[i]
		for _, anno := range tc.RiskAnnotations(model.RiskTypeInboundTransfer) {
			for _, data := range append([]map[string]any{anno.Data}, anno.ResolvedData...) {
				if uncheckedDownload(data) {
					lines = append(lines, fmt.Sprintf("- download from %v verified by no checksum (%s)", data["src"], tc.Spec.DefinedIn))
				}
			}
		}
	}
	return len(lines) > 0, nil, strings.Join(lines, "\n")
}

func uncheckedDownload(data map[string]any) bool {
	if data == nil {
		return false
	}
	if _, ok := data["src"]; !ok {
		return false
	}
	_, hasChecksum := data["checksum"]
	return !hasChecksum
}
