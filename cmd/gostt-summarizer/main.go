// Command gostt-summarizer records or accepts meeting audio and text,
// transcribes it locally with whisper.cpp and summarizes it with a chat
// model. It runs as an interactive console flow, an HTTP service or an
// inbox watcher.
package main

import "os"

func main() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}
