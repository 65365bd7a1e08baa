package app

// Command はアプリケーションのサブコマンドを表す。
type Command string

const (
	// CommandLogin はログインを実行する。
	CommandLogin Command = "login"
	// CommandLogout はローカルセッションを破棄する。
	CommandLogout Command = "logout"
	// CommandRegister はユーザー登録を実行する。
	CommandRegister Command = "register"
	// CommandWhoami は現在のセッションのユーザーを表示する。
	CommandWhoami Command = "whoami"
	// CommandProjects はプロジェクト一覧を表示する。
	CommandProjects Command = "projects"
	// CommandTasks はタスク一覧を表示する。
	CommandTasks Command = "tasks"
	// CommandReports はプロジェクトのレポートを表示する。
	CommandReports Command = "reports"
	// CommandWatch は常駐モードで起動する。
	CommandWatch Command = "watch"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandProjectsを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandProjects
	}

	switch args[0] {
	case "login":
		return CommandLogin
	case "logout":
		return CommandLogout
	case "register":
		return CommandRegister
	case "whoami":
		return CommandWhoami
	case "projects":
		return CommandProjects
	case "tasks":
		return CommandTasks
	case "reports":
		return CommandReports
	case "watch":
		return CommandWatch
	default:
		return CommandProjects
	}
}
