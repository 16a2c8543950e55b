package handlers

import (
	"context"
	"strings"

	contractx "github.com/tanpawarit/servicedesk/agent/contract"
)

// symptomEntry maps symptom keywords to canned suggestions. The table is
// ordered; the first entry with a keyword hit wins.
type symptomEntry struct {
	keywords    []string
	suggestions []string
}

var symptomTable = []symptomEntry{
	{
		keywords: []string{"won't turn on", "not turning on", "no power", "won't power", "won't boot", "won't start"},
		suggestions: []string{
			"Check that the charger is firmly connected and its LED is lit.",
			"Try a different power outlet and, if available, a different compatible charger.",
			"If the device still shows no sign of power, it likely needs a board-level inspection — consider opening a repair ticket.",
		},
	},
	{
		keywords: []string{"no display", "no video", "black screen", "no signal"},
		suggestions: []string{
			"Check the display brightness and try an external monitor if the device supports one.",
			"Listen for fan activity; if the device is running but dark, the screen or its cable may be at fault.",
		},
	},
	{
		keywords: []string{"paper jam", "paper stuck", "jam"},
		suggestions: []string{
			"Power the printer off and gently remove any visible paper along the paper path.",
			"Open the rear access panel and check for torn fragments around the rollers.",
		},
	},
	{
		keywords: []string{"not printing", "prints blank", "blank pages", "printer error"},
		suggestions: []string{
			"Check ink or toner levels and reseat the cartridges.",
			"Run the printer's built-in nozzle check or cleaning cycle.",
		},
	},
	{
		keywords: []string{"overheat", "overheating", "very hot", "too hot"},
		suggestions: []string{
			"Make sure the vents are clear of dust and the device sits on a hard surface.",
			"If it shuts down under light load, the cooling system probably needs servicing.",
		},
	},
	{
		keywords: []string{"slow", "lag", "freeze", "frozen", "freezes"},
		suggestions: []string{
			"Restart the device and close applications you aren't using.",
			"Check free disk space; under ~10% free, most systems degrade noticeably.",
		},
	},
}

const genericSuggestion = "Please describe the exact symptoms, any error messages, and the device model so I can narrow this down."

// TroubleshootHandler is stateless: it maps the message against the fixed
// symptom table and never touches a tool or the session.
type TroubleshootHandler struct{}

var _ contractx.Handler = (*TroubleshootHandler)(nil)

func NewTroubleshootHandler() *TroubleshootHandler {
	return &TroubleshootHandler{}
}

func (h *TroubleshootHandler) Handle(ctx context.Context, req contractx.HandleRequest) (contractx.HandleResponse, error) {
	message := strings.ToLower(req.Message)

	for _, entry := range symptomTable {
		for _, kw := range entry.keywords {
			if strings.Contains(message, kw) {
				var b strings.Builder
				b.WriteString("Here's what I'd try first:")
				for _, s := range entry.suggestions {
					b.WriteString("\n- ")
					b.WriteString(s)
				}
				return contractx.HandleResponse{Text: b.String()}, nil
			}
		}
	}

	return contractx.HandleResponse{Text: genericSuggestion}, nil
}
