// review 是复盘数据的命令行工具：写入示例数据、查看交易分析、导出知识库、清空数据。
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&seedCmd{}, "data")
	commander.Register(&clearCmd{}, "data")
	commander.Register(&analysisCmd{}, "reports")
	commander.Register(&knowledgeCmd{}, "reports")

	flag.Parse()
	setup()
	os.Exit(int(commander.Execute(context.Background())))
}
