package deck

import "testing"

func TestParseCards(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "natural",
			input: "AsKs",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Spades, Rank: King},
			},
		},
		{
			name:  "ten written two ways",
			input: "10hTd",
			expected: []Card{
				{Suit: Hearts, Rank: Ten},
				{Suit: Diamonds, Rank: Ten},
			},
		},
		{
			name:  "mixed with spaces",
			input: "8c 8d 2h",
			expected: []Card{
				{Suit: Clubs, Rank: Eight},
				{Suit: Diamonds, Rank: Eight},
				{Suit: Hearts, Rank: Two},
			},
		},
		{
			name:  "case insensitive",
			input: "asKHqDjc",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Hearts, Rank: King},
				{Suit: Diamonds, Rank: Queen},
				{Suit: Clubs, Rank: Jack},
			},
		},
		{
			name:    "invalid rank",
			input:   "XsKs",
			wantErr: true,
		},
		{
			name:    "invalid suit",
			input:   "AsKx",
			wantErr: true,
		},
		{
			name:    "incomplete card",
			input:   "AsK",
			wantErr: true,
		},
		{
			name:     "empty string",
			input:    "",
			expected: []Card{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCards(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseCards() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !cardsEqual(got, tt.expected) {
				t.Errorf("ParseCards() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustParseCards(t *testing.T) {
	cards := MustParseCards("AsKs")
	expected := []Card{
		{Suit: Spades, Rank: Ace},
		{Suit: Spades, Rank: King},
	}
	if !cardsEqual(cards, expected) {
		t.Errorf("MustParseCards() = %v, want %v", cards, expected)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("MustParseCards() should panic on invalid input")
		}
	}()
	MustParseCards("invalid")
}

func TestRankValues(t *testing.T) {
	tests := []struct {
		rank   Rank
		points int
		hiLo   int
	}{
		{Two, 2, 1},
		{Six, 6, 1},
		{Seven, 7, 0},
		{Nine, 9, 0},
		{Ten, 10, -1},
		{Jack, 10, -1},
		{Queen, 10, -1},
		{King, 10, -1},
		{Ace, 11, -1},
	}

	for _, tt := range tests {
		t.Run(tt.rank.String(), func(t *testing.T) {
			card := NewCard(Hearts, tt.rank)
			if card.Value() != tt.points {
				t.Errorf("Value() = %d, want %d", card.Value(), tt.points)
			}
			if card.CountValue() != tt.hiLo {
				t.Errorf("CountValue() = %d, want %d", card.CountValue(), tt.hiLo)
			}
		})
	}
}

func TestParseRankNames(t *testing.T) {
	for _, rank := range Ranks {
		got, err := ParseRank(rank.Name())
		if err != nil {
			t.Fatalf("ParseRank(%q) failed: %v", rank.Name(), err)
		}
		if got != rank {
			t.Errorf("ParseRank(%q) = %v, want %v", rank.Name(), got, rank)
		}

		got, err = ParseRank(rank.String())
		if err != nil {
			t.Fatalf("ParseRank(%q) failed: %v", rank.String(), err)
		}
		if got != rank {
			t.Errorf("ParseRank(%q) = %v, want %v", rank.String(), got, rank)
		}
	}

	if _, err := ParseRank("ELEVEN"); err == nil {
		t.Error("expected error for unknown rank name")
	}
}

func TestCardJSON(t *testing.T) {
	data, err := NewCard(Spades, Ace).MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	want := `{"rank":"A","suit":"♠","value":11}`
	if string(data) != want {
		t.Errorf("MarshalJSON() = %s, want %s", data, want)
	}
}

func cardsEqual(a, b []Card) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Rank != b[i].Rank || a[i].Suit != b[i].Suit {
			return false
		}
	}
	return true
}
