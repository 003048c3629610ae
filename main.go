package main

import "gitlab.com/cloverpay-platform/affiliate_api/cmd"

func main() {
	cmd.Execute()
}
