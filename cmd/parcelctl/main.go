package main

import "github.com/mvoronin/parceltrack/internal/ctl"

func main() {
	ctl.Execute()
}
