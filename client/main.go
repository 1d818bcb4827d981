package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/nguyenvanduc62915/network/common"
)

func main() {
	addr := "localhost:1234"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	conn, err := Connect(addr)
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s: %v\n", addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("Connected to %s\n", addr)
	fmt.Println("Commands: signup, signin, signout, get, ls, cd, mkgroup, join, mkdir, upload, download, rm, quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("%s> ", prompt())
		if !scanner.Scan() {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "signup":
			if len(args) < 2 {
				fmt.Println("Usage: signup <username> <password>")
				continue
			}
			roundTrip(conn, buildSignUp(args[0], args[1]))

		case "signin":
			if len(args) < 2 {
				fmt.Println("Usage: signin <username> <password>")
				continue
			}
			pendingUser = args[0]
			roundTrip(conn, buildSignIn(args[0], args[1]))
			// Pull the initial tree right after a successful sign-in
			if State.CurrentUser != "" {
				roundTrip(conn, buildGet())
			}

		case "signout":
			roundTrip(conn, buildSignOut())

		case "get":
			roundTrip(conn, buildGet())

		case "ls":
			listCurrent()

		case "cd":
			if len(args) < 1 {
				fmt.Println("Usage: cd <dir>|..")
				continue
			}
			changeDir(args[0])

		case "mkgroup":
			if len(args) < 1 {
				fmt.Println("Usage: mkgroup <name>")
				continue
			}
			// Group names may contain spaces
			roundTrip(conn, buildCreateGroup(strings.Join(args, " ")))

		case "join":
			if len(args) < 1 {
				fmt.Println("Usage: join <name>")
				continue
			}
			roundTrip(conn, buildJoinGroup(strings.Join(args, " ")))

		case "mkdir":
			if len(args) < 1 {
				fmt.Println("Usage: mkdir <name>")
				continue
			}
			path, ok := currentChildPath(args[0])
			if !ok {
				fmt.Println("Navigate into a group first")
				continue
			}
			roundTrip(conn, buildCreateFolder(path))

		case "upload":
			if len(args) < 1 {
				fmt.Println("Usage: upload <local-file>")
				continue
			}
			if State.Current == nil || State.Current.Path == "" {
				fmt.Println("Navigate into a group first")
				continue
			}
			frame, err := buildUploadFile(State.Current.Path, args[0])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			roundTrip(conn, frame)

		case "download":
			if len(args) < 1 {
				fmt.Println("Usage: download <name>")
				continue
			}
			path, ok := currentChildPath(args[0])
			if !ok {
				fmt.Println("Navigate into a group first")
				continue
			}
			roundTrip(conn, buildDownloadFile(path))

		case "rm":
			if len(args) < 1 {
				fmt.Println("Usage: rm <name>")
				continue
			}
			path, ok := currentChildPath(args[0])
			if !ok {
				fmt.Println("Navigate into a group first")
				continue
			}
			roundTrip(conn, buildDelete(path))

		case "quit", "exit":
			return

		default:
			fmt.Printf("Unknown command: %s\n", cmd)
		}
	}
}

func roundTrip(conn *ServerConn, frame []byte) {
	resp, err := conn.RoundTrip(frame)
	if err != nil {
		fmt.Printf("Error: Connection lost: %v\n", err)
		os.Exit(1)
	}
	if err := processResponse(resp); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func prompt() string {
	if State.CurrentUser == "" {
		return "(anonymous)"
	}
	if State.Current == nil || State.Current.Path == "" {
		return State.CurrentUser
	}
	return State.CurrentUser + ":" + State.Current.Path
}

func listCurrent() {
	if State.Current == nil {
		fmt.Println("No tree loaded, run get first")
		return
	}
	if len(State.Current.Children) == 0 {
		fmt.Println("(empty)")
		return
	}
	for _, child := range State.Current.Children {
		if child.Type == common.NodeDir {
			fmt.Printf("  %s/\n", child.Name)
		} else {
			fmt.Printf("  %s (%d bytes)\n", child.Name, child.Size)
		}
	}
}

func changeDir(name string) {
	if name == ".." {
		State.Up()
		return
	}
	if !State.Enter(name) {
		fmt.Printf("No such directory: %s\n", name)
	}
}

// currentChildPath resolves a name relative to the current node into a tree
// path. At the root the name itself would be a bare group name, which no
// path-taking operation accepts, so the caller is told to navigate first.
func currentChildPath(name string) (string, bool) {
	if State.Current == nil || State.Current.Path == "" {
		return "", false
	}
	return State.Current.Path + common.Separator + name, true
}
