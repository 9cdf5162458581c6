package telegram

import (
	"strings"
	"musegate/sources/texting/command"

	"github.com/alecthomas/kong"
)

func parseCmd(cmd interface{}, args string) (*kong.Context, error) {
	parser, err := kong.New(cmd)
	if err != nil {
		return nil, err
	}
	return parser.Parse(command.ParseArguments(args))
}

func joinPrompt(words []string) string {
	return strings.TrimSpace(strings.Join(words, " "))
}
