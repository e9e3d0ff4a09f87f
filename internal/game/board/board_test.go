package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name   string
		board  string
		kind   OutcomeKind
		winner int
	}{
		{"空棋盘", "000000000", Continue, 0},
		{"首行玩家1", "111000000", Win, 1},
		{"首列玩家1", "120120120", Win, 1},
		{"中列玩家2", "120020120", Win, 2},
		{"主对角线", "100010001", Win, 1},
		{"副对角线", "002020200", Win, 2},
		{"平局", "121121212", Draw, 0},
		{"未结束", "120000000", Continue, 0},
		{"满盘且有连线", "111221122", Win, 1},
		{"长度错误", "1110000", Continue, 0},
		{"非法字符", "11100000x", Continue, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Evaluate(tc.board)
			assert.Equal(t, tc.kind, out.Kind)
			assert.Equal(t, tc.winner, out.Winner)
		})
	}
}

func TestEvaluateLine(t *testing.T) {
	out := Evaluate("000222000")
	assert.Equal(t, [3]int{3, 4, 5}, out.Line)
}

func TestIsLegalMove(t *testing.T) {
	b := "100000000"
	assert.False(t, IsLegalMove(b, -1))
	assert.False(t, IsLegalMove(b, 9))
	assert.False(t, IsLegalMove(b, 0))
	assert.True(t, IsLegalMove(b, 4))
	assert.False(t, IsLegalMove("000", 1))
}

func TestAvailableMoves(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, AvailableMoves(emptyBoard()))
	assert.Equal(t, []int{2, 5, 8}, AvailableMoves("120210120"))
	assert.Empty(t, AvailableMoves("121121212"))
	assert.Empty(t, AvailableMoves("bad"))
}

func TestPlace(t *testing.T) {
	b, ok := Place("000000000", 4, 1)
	assert.True(t, ok)
	assert.Equal(t, "000010000", b)

	b2, ok := Place(b, 4, 2)
	assert.False(t, ok)
	assert.Equal(t, b, b2)

	_, ok = Place(b, 0, 3)
	assert.False(t, ok)
	assert.Equal(t, 1, CountMoves(b))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, []string{"X", "O", "", "", "X", "", "", "", "O"}, Display("120010002"))
}

func TestOther(t *testing.T) {
	assert.Equal(t, 2, Other(1))
	assert.Equal(t, 1, Other(2))
}

// 交替合法落子可达的所有棋盘上，最多只有一方连成一线
func TestReachableBoardsHaveSingleWinner(t *testing.T) {
	seen := map[string]bool{}
	var walk func(b string, turn int)
	walk = func(b string, turn int) {
		if seen[b] {
			return
		}
		seen[b] = true

		assert.False(t, winsFor(b, Player1) && winsFor(b, Player2), "双方同时获胜: %s", b)
		if Evaluate(b).Kind != Continue {
			return
		}
		for _, pos := range AvailableMoves(b) {
			next, ok := Place(b, pos, turn)
			assert.True(t, ok)
			walk(next, Other(turn))
		}
	}
	walk(emptyBoard(), 1)

	// 井字棋合法局面总数（含终局）
	assert.Equal(t, 5478, len(seen))
}

func winsFor(b string, mark byte) bool {
	for _, l := range lines {
		if b[l[0]] == mark && b[l[1]] == mark && b[l[2]] == mark {
			return true
		}
	}
	return false
}

func emptyBoard() string {
	return "000000000"
}
