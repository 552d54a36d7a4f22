package main

import (
	"fmt"
	"os"
	"os/exec"
)

// runSim 對應 Makefile:
//
// sim:
//
//	go run ./cmd/run -setup 2 -sweeps 100000
//
// 多餘的參數會原封不動轉給 cmd/run（例如 -worker 8 -seed 42）。
func runSim() {
	PrintGreen("running sweep simulator")

	args := []string{"run", "./cmd/run"}
	if len(os.Args) > 2 {
		args = append(args, os.Args[2:]...)
	} else {
		args = append(args, "-setup", "2", "-sweeps", "100000")
	}

	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		PrintRed(fmt.Sprintf("sim failed: %v", err))
		os.Exit(1)
	}
}

// runSvr 啟動 lab server（cmd/svr），多餘的參數一樣透傳。
func runSvr() {
	PrintGreen("starting lab server")

	args := []string{"run", "./cmd/svr"}
	if len(os.Args) > 2 {
		args = append(args, os.Args[2:]...)
	}

	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		PrintRed(fmt.Sprintf("svr failed: %v", err))
		os.Exit(1)
	}
}
