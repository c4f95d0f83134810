package server

// State はサーバーのライフサイクル上の状態を表す
type State int32

const (
	StateIdle    State = iota // 起動前
	StateBinding              // ポートをバインド中
	StateServing              // リクエストを処理中
	StateStopped              // 停止済み
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBinding:
		return "binding"
	case StateServing:
		return "serving"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
