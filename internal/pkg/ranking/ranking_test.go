package ranking

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRank(t *testing.T) {
	tests := []struct {
		name  string
		input []Entry
		want  []Ranked
	}{
		{
			name:  "empty",
			input: nil,
			want:  []Ranked{},
		},
		{
			name: "ties share a rank and the next rank skips",
			input: []Entry{
				{ID: "c", Name: "Cara", Score: 50},
				{ID: "a", Name: "Anu", Score: 90},
				{ID: "d", Name: "Dev", Score: 10},
				{ID: "b", Name: "Bala", Score: 50},
			},
			want: []Ranked{
				{Entry: Entry{ID: "a", Name: "Anu", Score: 90}, Rank: 1},
				{Entry: Entry{ID: "b", Name: "Bala", Score: 50}, Rank: 2},
				{Entry: Entry{ID: "c", Name: "Cara", Score: 50}, Rank: 2},
				{Entry: Entry{ID: "d", Name: "Dev", Score: 10}, Rank: 4},
			},
		},
		{
			name: "same name falls back to id",
			input: []Entry{
				{ID: "2", Name: "Same", Score: 5},
				{ID: "1", Name: "Same", Score: 5},
			},
			want: []Ranked{
				{Entry: Entry{ID: "1", Name: "Same", Score: 5}, Rank: 1},
				{Entry: Entry{ID: "2", Name: "Same", Score: 5}, Rank: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rank(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Rank() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRank_DoesNotModifyInput(t *testing.T) {
	input := []Entry{{ID: "a", Score: 1}, {ID: "b", Score: 2}}
	_ = Rank(input)
	if input[0].ID != "a" {
		t.Fatalf("input was reordered: %+v", input)
	}
}

func TestTop(t *testing.T) {
	input := []Entry{
		{ID: "a", Name: "A", Score: 3},
		{ID: "b", Name: "B", Score: 3},
		{ID: "c", Name: "C", Score: 1},
	}
	got := Top(input, 2)
	want := []Ranked{
		{Entry: Entry{ID: "a", Name: "A", Score: 3}, Rank: 1},
		{Entry: Entry{ID: "b", Name: "B", Score: 3}, Rank: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Top() mismatch (-want +got):\n%s", diff)
	}
}

func TestRankOf(t *testing.T) {
	scores := []int64{100, 50, 50, 0}
	tests := []struct {
		score int64
		want  int
	}{
		{score: 100, want: 1},
		{score: 50, want: 2},
		{score: 20, want: 4},
		{score: 0, want: 4},
		{score: 500, want: 1},
	}
	for _, tt := range tests {
		if got := RankOf(tt.score, scores); got != tt.want {
			t.Errorf("RankOf(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}
