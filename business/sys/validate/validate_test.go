package validate_test

import (
	"testing"

	"github.com/ardanlabs/voteledger/business/sys/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type transfer struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Amount string `json:"amount" validate:"required,amount"`
}

func TestCheck(t *testing.T) {
	tt := []struct {
		name   string
		val    transfer
		fields []string
	}{
		{
			name: "valid",
			val: transfer{
				From:   "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4",
				To:     "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32",
				Amount: "100",
			},
		},
		{
			name: "bad",
			val: transfer{
				From:   "bill",
				To:     "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32",
				Amount: "-1",
			},
			fields: []string{"amount"},
		},
		{
			name:   "missing",
			val:    transfer{},
			fields: []string{"from", "to", "amount"},
		},
	}

	t.Log("Given the need to validate request models.")
	{
		for testID, test := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s model.", testID, test.name)
			{
				err := validate.Check(test.val)

				if len(test.fields) == 0 {
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould pass validation: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould pass validation.", success, testID)
					continue
				}

				fields := validate.GetFieldErrors(err).Fields()
				for _, f := range test.fields {
					if _, exists := fields[f]; !exists {
						t.Fatalf("\t%s\tTest %d:\tShould fail field %q: got %v", failed, testID, f, fields)
					}
				}
				if len(fields) != len(test.fields) {
					t.Fatalf("\t%s\tTest %d:\tShould fail %d fields: got %v", failed, testID, len(test.fields), fields)
				}
				t.Logf("\t%s\tTest %d:\tShould fail the expected fields.", success, testID)
			}
		}
	}
}
