package main

import (
	"hqchat_backend/internal/app"
)

func main() {
	app.Run()
}
