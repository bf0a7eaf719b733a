package cache

import (
	"strconv"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"

	"github.com/goliatone/go-memocache/codec"
	"github.com/goliatone/go-memocache/pkg/testsupport"
)

// keyScenario is a group of ConcatKey cases loaded from fixtures.
type keyScenario struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Cases       []keyCase `json:"cases"`
}

type keyCase struct {
	Args        []any          `json:"args"`
	Named       map[string]any `json:"named"`
	ExpectedKey string         `json:"expectedKey"`
}

type keyFixtures struct {
	Scenarios []keyScenario `json:"scenarios"`
}

func TestConcatKey_Scenarios(t *testing.T) {
	var fixtures keyFixtures
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("concat_scenarios.json"), &fixtures)

	for _, scenario := range fixtures.Scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			for _, tc := range scenario.Cases {
				got, err := ConcatKey(Args{Positional: tc.Args, Named: tc.Named})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tc.ExpectedKey {
					t.Errorf("ConcatKey() = %q, want %q (%s)", got, tc.ExpectedKey, scenario.Description)
				}
			}
		})
	}
}

func TestConcatKey_NoArguments(t *testing.T) {
	_, err := ConcatKey(Args{})
	if !IsInvalidKey(err) {
		t.Errorf("expected an invalid key error, got %v", err)
	}
}

func TestJoinKey_Format(t *testing.T) {
	got, err := JoinKey(Positional(4, "a").With("n", 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := strconv.FormatUint(xxhash.Sum64String(`4`+"\x1f"+`"a"`+"\x1f"+`n=2`), 10)
	if got != want {
		t.Errorf("JoinKey() = %s, want %s", got, want)
	}
}

func TestJoinKey_Deterministic(t *testing.T) {
	first := Positional(1, "x").With("alpha", 1).With("beta", []float64{1, 2})
	second := Positional(1, "x").With("beta", []float64{1, 2}).With("alpha", 1)
	literal := Args{
		Positional: []any{1, "x"},
		Named:      map[string]any{"beta": []float64{1, 2}, "alpha": 1},
	}

	k1, err := JoinKey(first)
	if err != nil {
		t.Fatal(err)
	}
	for _, args := range []Args{second, literal} {
		k, err := JoinKey(args)
		if err != nil {
			t.Fatal(err)
		}
		if k != k1 {
			t.Errorf("expected %s for equivalent arguments, got %s", k1, k)
		}
	}

	swapped, _ := JoinKey(Positional("x", 1).With("alpha", 1).With("beta", []float64{1, 2}))
	if swapped == k1 {
		t.Error("positional order should change the key")
	}

	renamed, _ := JoinKey(Positional(1, "x").With("alpha", 1).With("gamma", []float64{1, 2}))
	if renamed == k1 {
		t.Error("argument names should change the key")
	}
}

func TestJoinKey_RichArguments(t *testing.T) {
	a, err := JoinKey(Positional(codec.MustArray([]int32{1, 2}), codec.NewDate(2020, 1, 2)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := JoinKey(Positional(codec.MustArray([]int64{1, 2}), codec.NewDate(2020, 1, 2)))
	if a == b {
		t.Error("element type should change the key")
	}
}

func TestJoinKey_Unencodable(t *testing.T) {
	_, err := JoinKey(Positional(make(chan int)))
	if !IsInvalidKey(err) {
		t.Errorf("expected an invalid key error, got %v", err)
	}
}

func TestArrayKey(t *testing.T) {
	key := func(args Args) string {
		t.Helper()
		k, err := ArrayKey(args)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return k
	}

	values := []float64{1, 2, 3, 4}
	base := key(Positional(values))

	if got := key(Positional([]float64{1, 2, 3, 4})); got != base {
		t.Error("equal contents should give equal keys")
	}
	if got := key(Positional(codec.MustArray(values))); got != base {
		t.Error("a slice and an array with the same contents should share a key")
	}
	if got := key(Positional(codec.MustArray(values, 2, 2))); got == base {
		t.Error("shape should change the key")
	}
	if got := key(Positional([]float32{1, 2, 3, 4})); got == base {
		t.Error("element type should change the key")
	}
	if key(Positional([]int{7, 8})) != key(Positional([]int64{7, 8})) {
		t.Error("[]int is hashed as int64")
	}
	if got := key(Args{Named: map[string]any{"array": values}}); got != base {
		t.Error("named array argument should be accepted")
	}

	if values[0] != 1 || values[3] != 4 {
		t.Error("argument was modified")
	}

	if _, err := ArrayKey(Positional("not numeric")); !IsInvalidKey(err) {
		t.Errorf("expected an invalid key error, got %v", err)
	}
	if _, err := ArrayKey(Args{}); !IsInvalidKey(err) {
		t.Errorf("expected an invalid key error, got %v", err)
	}
}

func TestConstantKeys(t *testing.T) {
	k, err := OneKey(Positional(1, 2, 3))
	if err != nil || k != "one_key" {
		t.Errorf("OneKey() = %q, %v", k, err)
	}

	k, _ = ConstantKey("latest")(Args{})
	if k != "latest" {
		t.Errorf("ConstantKey() = %q", k)
	}
}

func TestDatePlaceKey(t *testing.T) {
	geom := map[string]any{"type": "Point", "coordinates": []float64{12.5, 41.9}}
	years := []int{2019, 2020}

	positional, err := DatePlaceKey(Positional(geom, years))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	named, err := DatePlaceKey(Args{}.With("years", years).With("geom", geom))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if positional != named {
		t.Errorf("positional and named forms should agree: %s != %s", positional, named)
	}

	asArray, _ := DatePlaceKey(Positional(geom, codec.MustArray([]int64{2019, 2020})))
	if asArray != positional {
		t.Error("years given as an array should match the slice form")
	}

	other, _ := DatePlaceKey(Positional(geom, []int{2019}))
	if other == positional {
		t.Error("years should change the key")
	}

	if _, err := DatePlaceKey(Positional(geom, 2019)); !IsInvalidKey(err) {
		t.Errorf("expected an invalid key error for scalar years, got %v", err)
	}
	if _, err := DatePlaceKey(Args{}); !IsInvalidKey(err) {
		t.Errorf("expected an invalid key error without arguments, got %v", err)
	}
}

func TestKeyStrategyByName(t *testing.T) {
	for _, name := range []string{"", StrategyJoin, StrategyConcat, StrategyArray, StrategyOne, StrategyDatePlace} {
		if s, err := KeyStrategyByName(name); err != nil || s == nil {
			t.Errorf("KeyStrategyByName(%q) = %v", name, err)
		}
	}

	if _, err := KeyStrategyByName("md5"); !IsInvalidKey(err) {
		t.Errorf("expected an invalid key error, got %v", err)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"4", true},
		{"one_key", true},
		{"1234567890", true},
		{"", false},
		{".", false},
		{"..", false},
		{"a/b", false},
		{`a\b`, false},
		{"a\x00b", false},
		{strings.Repeat("k", 255), true},
		{strings.Repeat("k", 256), false},
	}

	for _, tt := range tests {
		err := ValidateKey(tt.key)
		if tt.valid && err != nil {
			t.Errorf("ValidateKey(%q) unexpected error: %v", tt.key, err)
		}
		if !tt.valid && !IsInvalidKey(err) {
			t.Errorf("ValidateKey(%q) expected an invalid key error, got %v", tt.key, err)
		}
	}
}

func TestArgs(t *testing.T) {
	base := Positional(1)
	withName := base.With("b", 2).With("a", 1)

	if base.Named != nil {
		t.Error("With should not modify the receiver")
	}
	if got := withName.Names(); strings.Join(got, ",") != "a,b" {
		t.Errorf("Names() = %v", got)
	}
	if withName.Len() != 3 {
		t.Errorf("Len() = %d", withName.Len())
	}

	if v, ok := withName.Lookup(0, "a"); !ok || v != 1 {
		t.Errorf("Lookup(0) = %v, %v", v, ok)
	}
	if v, ok := withName.Lookup(1, "b"); !ok || v != 2 {
		t.Errorf("Lookup(1, b) = %v, %v", v, ok)
	}
	if _, ok := withName.Lookup(1, "missing"); ok {
		t.Error("Lookup should miss")
	}
}
