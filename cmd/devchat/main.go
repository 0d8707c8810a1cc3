package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/devchat/cmd/devchat/chat"
	"github.com/papercomputeco/devchat/cmd/devchat/cmdutil"
	imaginecmder "github.com/papercomputeco/devchat/cmd/devchat/imagine"
	mergecmder "github.com/papercomputeco/devchat/cmd/devchat/merge"
	pushcmder "github.com/papercomputeco/devchat/cmd/devchat/push"
	servecmder "github.com/papercomputeco/devchat/cmd/devchat/serve"
)

const devchatLongDesc string = `devchat is a chat front-end for an AI code assistant.

Conversations go to an OpenRouter chat-completion model in chat mode, or
become generated image links in image mode. Code blocks in replies can be
copied or saved with the right file extension.

Configuration is read from ~/.devchat/config.toml; the API key may also be
set with OPENROUTER_API_KEY.`

func newDevchatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "devchat",
		Short:         "Chat with an AI code assistant",
		Long:          devchatLongDesc,
		SilenceUsage: true,
	}

	cmdutil.AddPersistentFlags(cmd)

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(imaginecmder.NewImagineCmd())
	cmd.AddCommand(pushcmder.NewPushCmd())
	cmd.AddCommand(mergecmder.NewMergeCmd())

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newDevchatCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
