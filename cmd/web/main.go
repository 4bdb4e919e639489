package main

import "soko_backend/internal/app"

func main() {
	app.Run()
}
