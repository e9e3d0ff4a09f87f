package game

import (
	"fmt"

	"github.com/wfunc/tictactoe/internal/game/board"
	"github.com/wfunc/tictactoe/internal/models"
)

// transitions 对局状态流转规则
var transitions = map[models.Status][]models.Status{
	models.StatusWaiting:    {models.StatusInProgress},
	models.StatusInProgress: {models.StatusFinished},
}

// CanTransition 判断状态能否从 from 流转到 to
func CanTransition(from, to models.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// resultFor 按判定结果得到对局结果
func resultFor(outcome board.Outcome) models.GameResult {
	switch {
	case outcome.Kind == board.Draw:
		return models.ResultDraw
	case outcome.Kind == board.Win && outcome.Winner == 1:
		return models.ResultPlayer1Win
	case outcome.Kind == board.Win && outcome.Winner == 2:
		return models.ResultPlayer2Win
	default:
		return models.ResultNone
	}
}

// resultText game_over 的文字描述
func resultText(winner int) string {
	if winner == 0 {
		return "Draw!"
	}
	return fmt.Sprintf("Player %d wins!", winner)
}

// winnerNumber 对局胜者座位号，平局为0
func winnerNumber(result models.GameResult) int {
	switch result {
	case models.ResultPlayer1Win:
		return 1
	case models.ResultPlayer2Win:
		return 2
	default:
		return 0
	}
}
