package importer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreviewMarksExistingCaseInsensitively(t *testing.T) {
	t.Parallel()

	res := ParseTemplate([]byte("date,trip_name,aircraft_tail_number,vendor_name,category_name,amount,payment_method\n" +
		"2024-01-15,Spring,n12345,signature flight support,FUEL,10,Amex\n" +
		"2024-01-16,Spring,N12345,Signature Flight Support,Catering,5,\n" +
		"2024-01-17,Other Trip,N9,Signatur Flight Support,Jet-A Uplift,5,Visa\n"))
	require.Empty(t, res.Errors)

	existing := Existing{
		Categories:     []ExistingCategory{{ID: "c-fuel", Name: "Fuel", IsFuel: true}},
		Vendors:        []ExistingEntity{{ID: "v-sig", Name: "Signature Flight Support"}},
		PaymentMethods: []ExistingEntity{{ID: "p-amex", Name: "AMEX"}},
		Aircraft:       []ExistingAircraft{{ID: "a-1", TailNumber: "N12345"}},
		Trips:          []ExistingTrip{{ID: "t-1", Name: "spring", StartDate: "2023-04-01"}},
	}
	p := TransformTemplate(res.Rows, existing)

	require.Equal(t, []EntityEntry{
		{Name: "N12345", Exists: true, ExistingID: "a-1"},
		{Name: "N9"},
	}, p.Aircraft)

	require.Len(t, p.Vendors, 2)
	require.Equal(t, "Signatur Flight Support", p.Vendors[0].Name)
	require.False(t, p.Vendors[0].Exists)
	require.Equal(t, "Signature Flight Support", p.Vendors[0].Suggestion)
	require.Equal(t, "Signature Flight Support", p.Vendors[1].Name)
	require.True(t, p.Vendors[1].Exists)
	require.Equal(t, "v-sig", p.Vendors[1].ExistingID)

	require.Equal(t, []EntityEntry{
		{Name: "Catering"},
		{Name: "FUEL", Exists: true, ExistingID: "c-fuel", IsFuel: true},
		{Name: "Jet-A Uplift", IsFuel: true},
	}, p.Categories)

	require.Len(t, p.PaymentMethods, 2)
	require.True(t, p.PaymentMethods[0].Exists)
	require.Equal(t, "Visa", p.PaymentMethods[1].Name)

	require.Equal(t, []DuplicateTrip{{
		ImportTripName:   "Spring",
		ExistingTripID:   "t-1",
		ExistingTripName: "spring",
		StartDate:        "2023-04-01",
	}}, p.Duplicates)
}

func TestIsLikelyFuelCategory(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"Fuel", " AvGas 100LL", "jet-a", "Jet Fuel"} {
		require.True(t, IsLikelyFuelCategory(name), name)
	}
	for _, name := range []string{"Landing Fees", "Jet A", "Hangar"} {
		require.False(t, IsLikelyFuelCategory(name), name)
	}
}

func TestTransformWithOnlyStandaloneExpenses(t *testing.T) {
	t.Parallel()

	p, err := Transform(SourceAirplaneManager, ParseAirplaneManager(amCSV(
		"E1,I1,2024-06-01,,,,,Shell,,Oil,,,,20,",
	)).Rows, Existing{})
	require.NoError(t, err)
	require.Empty(t, p.Trips)
	require.Empty(t, p.Aircraft)
	require.Equal(t, 1, p.TotalExpenses)
	require.Equal(t, 1, p.TotalLineItems)
	require.Len(t, p.Vendors, 1)
	require.Len(t, p.Categories, 1)
}
