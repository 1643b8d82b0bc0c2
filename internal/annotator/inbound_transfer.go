package annotator

import (
	"riskline/internal/model"
)

// InboundTransfer annotates tasks that pull content from the network onto the
// managed host.
type InboundTransfer struct{}

func NewInboundTransfer() Annotator { return InboundTransfer{} }

func (InboundTransfer) Name() string  { return "inbound-transfer" }
func (InboundTransfer) Enabled() bool { return true }
func (InboundTransfer) Type() string  { return model.TypeRiskAnnotation }

func (InboundTransfer) Match(tc *model.TaskCall) bool {
	return tc.ResolvedName == "ansible.builtin.get_url"
}

func (i InboundTransfer) Run(tc *model.TaskCall) []model.Annotation {
	if !i.Match(tc) {
		return nil
	}
	anno := model.RiskAnnotation{
		Category: model.RiskTypeInboundTransfer,
		Data:     transferFields(tc.Spec.ModuleOptions),
	}
	for _, resolved := range tc.ResolvedModuleOptions() {
		anno.ResolvedData = append(anno.ResolvedData, transferFields(resolved))
	}
	return []model.Annotation{anno}
}

// transferFields concretizes get_url options.
func transferFields(options any) map[string]any {
	data := map[string]any{}
	opts := optionsMap(options)
	if opts == nil {
		return data
	}
	if v, ok := opts["url"]; ok {
		data["src"] = v
	}
	if v, ok := opts["dest"]; ok {
		data["dest"] = v
	}
	if v, ok := opts["checksum"]; ok {
		data["checksum"] = v
	}
	if v, ok := opts["validate_certs"]; ok && v == false {
		data["insecure"] = true
	}
	return data
}
