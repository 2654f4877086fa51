// Command dojo-sim replays synthetic sparring scenarios against a dojo server.
package main

func main() {
	Execute()
}
