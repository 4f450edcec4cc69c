package storage

import (
	"math"
	"testing"
)

func TestVectorizeDimension(t *testing.T) {
	for _, text := range []string{"", "аб", "договор № 45 от 15.03.2024"} {
		if got := len(Vectorize(text)); got != VectorDim {
			t.Errorf("len(Vectorize(%q)) = %d, want %d", text, got, VectorDim)
		}
	}
}

func TestVectorizeDeterministic(t *testing.T) {
	text := "Счет на оплату № 12 от 15.03.2024, итого 50 000 руб"

	first := Vectorize(text)
	second := Vectorize(text)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("vectors differ at bucket %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestVectorizeNormalized(t *testing.T) {
	vector := Vectorize("настоящий договор заключен между сторонами")

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}

	if math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("squared norm = %v, want 1.0", norm)
	}
}

func TestVectorizeWhitespaceAndCaseInsensitive(t *testing.T) {
	base := Vectorize("договор аренды помещения")
	spaced := Vectorize("  договор   аренды \n помещения  ")
	upper := Vectorize("ДОГОВОР АРЕНДЫ ПОМЕЩЕНИЯ")

	for i := range base {
		if base[i] != spaced[i] {
			t.Fatalf("whitespace noise changed bucket %d", i)
		}
		if base[i] != upper[i] {
			t.Fatalf("case changed bucket %d", i)
		}
	}
}

func TestVectorizeShortTextIsZero(t *testing.T) {
	for _, text := range []string{"", "а", "аб", "   "} {
		vector := Vectorize(text)
		for i, v := range vector {
			if v != 0 {
				t.Fatalf("Vectorize(%q) bucket %d = %v, want zero vector", text, i, v)
			}
		}
	}
}

func TestVectorizeDistinguishesTexts(t *testing.T) {
	a := Vectorize("договор аренды нежилого помещения")
	b := Vectorize("квитанция об оплате коммунальных услуг")

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("unrelated texts produced identical vectors")
	}
}
