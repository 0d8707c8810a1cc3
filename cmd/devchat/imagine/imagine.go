package imaginecmder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/devchat/pkg/imagegen"
)

const imagineLongDesc string = `Print a generated image link for a prompt.

The prompt is wrapped in a photography style template. No request is
made; opening the link renders the image.

Examples:
  devchat imagine a lighthouse at dusk
  devchat imagine --seed 42 "a red fox"`

const imagineShortDesc string = "Print an image link for a prompt"

type imagineCommander struct {
	seed int
}

func NewImagineCmd() *cobra.Command {
	cmder := &imagineCommander{}

	cmd := &cobra.Command{
		Use:   "imagine <prompt>",
		Short: imagineShortDesc,
		Long:  imagineLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, strings.Join(args, " "))
		},
	}

	cmd.Flags().IntVar(&cmder.seed, "seed", -1, "Image seed (random when negative)")

	return cmd
}

func (c *imagineCommander) run(cmd *cobra.Command, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return errors.New("prompt is empty")
	}
	if c.seed >= imagegen.MaxSeed {
		return fmt.Errorf("seed must be below %d", imagegen.MaxSeed)
	}

	url := imagegen.GenerateImage(prompt)
	if c.seed >= 0 {
		url = imagegen.URLFor(prompt, c.seed)
	}

	fmt.Fprintln(cmd.OutOrStdout(), url)
	return nil
}
