package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/advocate/internal/app/wizard"
	"github.com/PabloGalante/advocate/internal/domain"
)

var flowJSON bool

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Print the step sequence of every wizard variant",
	Long: `Print the forward step sequence and "Step N of M" numbering of every
wizard variant (bill or member contact, guest or signed in).`,
	Args: cobra.NoArgs,
	RunE: runFlow,
}

func init() {
	flowCmd.Flags().BoolVar(&flowJSON, "json", false, "print JSON instead of a table")
}

type flowStep struct {
	Step    string `json:"step"`
	Display int    `json:"display,omitempty"`
}

type flowVariant struct {
	Variant string     `json:"variant"`
	Total   int        `json:"total"`
	Steps   []flowStep `json:"steps"`
}

func variants() []flowVariant {
	var out []flowVariant
	for _, flow := range []domain.FlowKind{domain.FlowBillOrCampaign, domain.FlowMemberContact} {
		for _, authenticated := range []bool{false, true} {
			v := wizard.Variant{Flow: flow, Authenticated: authenticated}
			fv := flowVariant{Variant: v.String(), Total: wizard.TotalSteps(v)}
			for _, s := range wizard.Sequence(v) {
				n, _ := wizard.DisplayStep(s, v)
				fv.Steps = append(fv.Steps, flowStep{Step: s.String(), Display: n})
			}
			out = append(out, fv)
		}
	}
	return out
}

func runFlow(cmd *cobra.Command, _ []string) error {
	vs := variants()
	out := cmd.OutOrStdout()

	if flowJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(vs)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, v := range vs {
		fmt.Fprintf(tw, "%s\t(%d steps)\n", v.Variant, v.Total)
		for _, s := range v.Steps {
			if s.Display > 0 {
				fmt.Fprintf(tw, "\t%d of %d\t%s\n", s.Display, v.Total, s.Step)
			} else {
				fmt.Fprintf(tw, "\t-\t%s\n", s.Step)
			}
		}
	}
	return tw.Flush()
}
