package domain

import (
	"strings"
	"testing"
)

// FuzzParseIdentity checks that parsing never panics on arbitrary input and
// that accepted values round-trip unchanged.
func FuzzParseIdentity(f *testing.F) {
	f.Add("")
	f.Add("0x5fbdb2315678afecb367f032d93f642f64180aa3")
	f.Add("0x" + strings.Repeat("0", 40))
	f.Add("not-an-address")
	f.Add("'; DROP TABLE sources;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("0x5FBDB2315678AFECB367F032D93F642F64180AA3")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseIdentity(input)
		if err != nil {
			return
		}
		roundTrip, err2 := ParseIdentity(id.String())
		if err2 != nil {
			t.Errorf("accepted identity failed round-trip: %v", err2)
		}
		if roundTrip != id {
			t.Error("round-trip changed identity value")
		}
		if id != Identity(strings.ToLower(id.String())) {
			t.Error("accepted identity is not normalized")
		}
	})
}

// FuzzParseContentID mirrors FuzzParseIdentity for content ids so both
// boundary parsers behave consistently.
func FuzzParseContentID(f *testing.F) {
	f.Add("")
	f.Add("0x" + strings.Repeat("ab", 32))
	f.Add("0x" + strings.Repeat("0", 64))
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseContentID(input)
		if err != nil {
			return
		}
		roundTrip, err2 := ParseContentID(id.String())
		if err2 != nil {
			t.Errorf("accepted content id failed round-trip: %v", err2)
		}
		if roundTrip != id {
			t.Error("round-trip changed content id value")
		}
	})
}
