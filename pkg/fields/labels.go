package fields

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// LabelEntry maps a visible label to a key.
type LabelEntry struct {
	Label string
	Key   Key
}

// LabelTable is consulted in order by the label matchers.
type LabelTable []LabelEntry

// DefaultLabels covers the labels the establishment form has used over time.
var DefaultLabels = LabelTable{
	{Label: "Redemption Code", Key: RedemptionCode},
	{Label: "Partner Code", Key: RedemptionCode},
	{Label: "Official Establishment Name", Key: OfficialEstablishmentName},
	{Label: "Establishment Name", Key: OfficialEstablishmentName},
	{Label: "Custom Establishment Name", Key: CustomEstablishmentName},
	{Label: "Display Name", Key: CustomEstablishmentName},
	{Label: "Establishment Type", Key: EstablishmentType},
	{Label: "Partner Status", Key: PartnerStatus},
	{Label: "Award Level", Key: AwardLevel},
	{Label: "Duties & Taxes", Key: DutiesAndTaxes},
	{Label: "Duties and Taxes", Key: DutiesAndTaxes},
}

// Label returns the first table label registered for k.
func (t LabelTable) Label(k Key) string {
	for _, e := range t {
		if e.Key == k {
			return e.Label
		}
	}
	return string(k)
}

var (
	decorations = regexp.MustCompile(`(?i)\((required|optional)\)`)
	spaces      = regexp.MustCompile(`\s+`)
)

// CleanLabel strips required markers, trailing punctuation and redundant
// whitespace from a label.
func CleanLabel(s string) string {
	s = norm.NFKC.String(s)
	s = decorations.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "*", "")
	s = spaces.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ":.;,?! ")
	return strings.TrimSpace(s)
}

// fold case-folds s. Casers carry state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
