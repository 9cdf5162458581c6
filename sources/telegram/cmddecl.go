package telegram

type ChatCmd struct {
	Advanced bool     `help:"Use the advanced text model" short:"a"`
	Prompt   []string `arg:"" optional:"" help:"Prompt text"`
}

type ImageCmd struct {
	Provider string   `help:"Pin a provider instead of balancing" enum:"dalle,midjourney," default:""`
	Quality  string   `help:"Render quality" enum:"standard,hd" default:"standard"`
	Width    int      `help:"Image width in pixels" default:"1024"`
	Height   int      `help:"Image height in pixels" default:"1024"`
	Prompt   []string `arg:"" optional:"" help:"Prompt text"`
}

type MusicCmd struct {
	Instrumental bool     `help:"Generate without vocals" short:"i"`
	Duration     int      `help:"Track duration in seconds" default:"60"`
	Prompt       []string `arg:"" optional:"" help:"Prompt text"`
}

type VideoCmd struct {
	Duration int      `help:"Clip duration in seconds" default:"5"`
	Mode     string   `help:"Generation mode" enum:"std,pro" default:"std"`
	Prompt   []string `arg:"" optional:"" help:"Prompt text"`
}
