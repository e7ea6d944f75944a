package main

var cli struct {
	Verbose bool   `help:"Prints debug output"`
	Profile string `help:"Symbol duration profile: safe, balanced or fast"`
	Version string `help:"Protocol version: v2 or v3"`
	Legacy  bool   `help:"Also accept v2 frames when decoding"`
	Send    struct {
		Text string `arg:"" help:"Text to transmit"`
		Out  string `help:"Output WAV path" default:"out.wav"`
		Seq  int    `help:"Sequence number for the frame (v3)"`
	} `cmd:"" help:"Encode text into a WAV file of FSK audio"`
	Recv struct {
		File     string `arg:"" help:"WAV file to decode"`
		NoFilter bool   `help:"Skip the band-limiting front end"`
	} `cmd:"" help:"Decode frames from a WAV file"`
	Diag struct {
		File string `arg:"" help:"WAV file to analyze"`
	} `cmd:"" help:"Report per-window signal metrics and channel diagnosis"`
}
