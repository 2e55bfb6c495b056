package main

import "github.com/iwtcode/conveyorControl/internal/app"

func main() {
	app.New().Run()
}
