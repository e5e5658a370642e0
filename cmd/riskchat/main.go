// Command riskchat is a terminal client for the Risk Analyst agent.
package main

import "github.com/diogo/riskchat/internal/commands"

func main() {
	commands.Execute()
}
