package main

import (
	"flag"
	"log"

	"github.com/suutaku/screencapture/pkg/capture"
)

func main() {
	log.SetFlags(log.Lshortfile)

	x := flag.Int("x", 0, "region left edge")
	y := flag.Int("y", 0, "region top edge")
	w := flag.Int("w", 100, "region width")
	h := flag.Int("h", 100, "region height")
	display := flag.Int("display", 0, "display index")
	out := flag.String("o", "", "write the capture as PNG to this path")
	count := flag.Int("n", 1, "number of captures")
	flag.Parse()

	impl, err := capture.Init(capture.WithDisplay(*display))
	if err != nil {
		log.Fatal(err)
	}
	defer impl.Close()

	region := capture.Region{X: *x, Y: *y, Width: *w, Height: *h}
	for i := 0; i < *count; i++ {
		var data *capture.Data
		if *out != "" {
			data, err = impl.CaptureToFile(region, *out)
		} else {
			data, err = impl.Capture(region)
		}
		if err != nil {
			log.Println(err)
			return
		}
		log.Println(data.Width, data.Height, data.Format, data.Timestamp)
	}
}
