package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPhoneVariants(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"+91-9876543210", []string{"+91-9876543210", "919876543210", "9876543210"}},
		{"9876543210", []string{"9876543210"}},
		{"09876543210", []string{"09876543210", "9876543210"}},
		{"9123456789", []string{"9123456789"}},
		{" (022) 2345 6789 ", []string{"(022) 2345 6789", "02223456789", "2223456789"}},
		{"", nil},
		{"   ", nil},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PhoneVariants(tc.in), "input %q", tc.in)
	}
}

func TestRequesterOwns(t *testing.T) {
	me := uuid.New()
	who := Requester{CustomerID: me, Phone: "+91 98765 43210"}

	cases := []struct {
		name     string
		customer uuid.UUID
		phone    string
		want     bool
	}{
		{"same customer", me, "", true},
		{"digits only", uuid.New(), "919876543210", true},
		{"without country code", uuid.New(), "9876543210", true},
		{"other phone", uuid.New(), "9123456780", false},
		{"no phone on order", uuid.New(), "", false},
	}
	for _, tc := range cases {
		if got := who.Owns(tc.customer, tc.phone); got != tc.want {
			t.Fatalf("%s: Owns = %v, want %v", tc.name, got, tc.want)
		}
	}
	if (Requester{CustomerID: me}).Owns(uuid.New(), "9876543210") {
		t.Fatal("a requester without a phone owns only its own orders")
	}
}
