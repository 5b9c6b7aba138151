package risk

// Action 描述风险控制建议的动作类型。
type Action string

const (
	ActionHold       Action = "hold"
	ActionReduce     Action = "reduce"
	ActionSellAll    Action = "sell_all"
	ActionTakeProfit Action = "take_profit"
)

// Display 返回动作的中文说法，用于拼装建议文本。
func (a Action) Display() string {
	switch a {
	case ActionReduce:
		return "减仓"
	case ActionSellAll:
		return "清仓"
	case ActionTakeProfit:
		return "止盈"
	default:
		return "持有"
	}
}

// Signal 为一次风险评估的输出，属于瞬态结果，不做持久化。
type Signal struct {
	Action  Action  `json:"action"`
	Percent float64 `json:"percent"`
	Reason  string  `json:"reason"`
}
