// Package board 井字棋棋盘规则：终局判定与合法落子，无状态。
//
// 棋盘为9个字符，下标 row*3+col，'0' 为空，'1'/'2' 分别为玩家1/玩家2。
package board

import "strings"

const (
	// Size 格子数
	Size = 9
	// Empty 空格标记
	Empty byte = '0'
	// Player1 玩家1标记
	Player1 byte = '1'
	// Player2 玩家2标记
	Player2 byte = '2'
)

// OutcomeKind 终局类型
type OutcomeKind int

const (
	Continue OutcomeKind = iota
	Win
	Draw
)

// String 便于日志输出
func (k OutcomeKind) String() string {
	switch k {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "continue"
	}
}

// Outcome 判定结果，Kind 为 Win 时 Winner 为 1 或 2
type Outcome struct {
	Kind   OutcomeKind
	Winner int
	Line   [3]int
}

// lines 8条连线：3行、3列、2条对角线
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Valid 棋盘长度为9且只含 '0'/'1'/'2'
func Valid(b string) bool {
	if len(b) != Size {
		return false
	}
	for i := 0; i < Size; i++ {
		if b[i] != Empty && b[i] != Player1 && b[i] != Player2 {
			return false
		}
	}
	return true
}

// Evaluate 判定棋盘：有连线返回 Win，无空格返回 Draw，否则 Continue。
// 非法棋盘按 Continue 处理。
func Evaluate(b string) Outcome {
	if !Valid(b) {
		return Outcome{Kind: Continue}
	}
	for _, l := range lines {
		c := b[l[0]]
		if c != Empty && c == b[l[1]] && c == b[l[2]] {
			return Outcome{Kind: Win, Winner: int(c - '0'), Line: l}
		}
	}
	if strings.IndexByte(b, Empty) < 0 {
		return Outcome{Kind: Draw}
	}
	return Outcome{Kind: Continue}
}

// IsLegalMove 位置在 [0,8] 且为空
func IsLegalMove(b string, position int) bool {
	if position < 0 || position >= Size || len(b) != Size {
		return false
	}
	return b[position] == Empty
}

// AvailableMoves 空格下标，升序
func AvailableMoves(b string) []int {
	moves := make([]int, 0, Size)
	if len(b) != Size {
		return moves
	}
	for i := 0; i < Size; i++ {
		if b[i] == Empty {
			moves = append(moves, i)
		}
	}
	return moves
}

// Place 在 position 落下 player(1|2) 的棋子，返回新棋盘
func Place(b string, position, player int) (string, bool) {
	if !IsLegalMove(b, position) || (player != 1 && player != 2) {
		return b, false
	}
	cells := []byte(b)
	cells[position] = byte('0' + player)
	return string(cells), true
}

// CountMoves 非空格子数
func CountMoves(b string) int {
	return Size - strings.Count(b, string(Empty))
}

// Display 转为前端展示：'0'→""，'1'→"X"，'2'→"O"
func Display(b string) []string {
	cells := make([]string, len(b))
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case Player1:
			cells[i] = "X"
		case Player2:
			cells[i] = "O"
		default:
			cells[i] = ""
		}
	}
	return cells
}

// Other 对手座位号
func Other(player int) int {
	if player == 1 {
		return 2
	}
	return 1
}
