// Package fields discovers the establishment form's field groups and maps each
// one to a semantic key.
package fields

// Key identifies a form field independently of its DOM position. Keys are
// stable across rescans.
type Key string

const (
	RedemptionCode            Key = "redemptionCode"
	OfficialEstablishmentName Key = "officialEstablishmentName"
	CustomEstablishmentName   Key = "customEstablishmentName"
	EstablishmentType         Key = "establishmentType"
	PartnerStatus             Key = "partnerStatus"
	AwardLevel                Key = "awardLevel"
	DutiesAndTaxes            Key = "dutiesAndTaxes"
)

// AllKeys lists every key in form order.
var AllKeys = []Key{
	RedemptionCode,
	OfficialEstablishmentName,
	CustomEstablishmentName,
	EstablishmentType,
	PartnerStatus,
	AwardLevel,
	DutiesAndTaxes,
}

// Valid reports whether k is one of the known keys.
func (k Key) Valid() bool {
	for _, known := range AllKeys {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKey returns the key named s.
func ParseKey(s string) (Key, bool) {
	k := Key(s)
	return k, k.Valid()
}
