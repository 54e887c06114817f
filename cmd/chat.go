package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	chatv1 "github.com/paglaai/paglachat/pkg/apis/chat/v1"
	"github.com/paglaai/paglachat/pkg/chat"
	"github.com/paglaai/paglachat/pkg/chat/localstore"
	"github.com/paglaai/paglachat/pkg/chat/view"
	"github.com/paglaai/paglachat/pkg/chatclient"
	"github.com/paglaai/paglachat/pkg/chatserver"
)

// localUserID identifies the guest actor on the wire. Guest conversations
// never leave local disk; the id only satisfies the send endpoint's actor
// requirement.
const localUserID = "guest"

type ChatFlags struct {
	ServerURL string
	DataDir   string
	ChatID    string
}

func NewChatFlags() *ChatFlags {
	dataDir := ".paglachat"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".paglachat")
	}

	return &ChatFlags{
		ServerURL: chatclient.DefaultServerURL,
		DataDir:   dataDir,
	}
}

func (f *ChatFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.ServerURL, "server", f.ServerURL, "Base URL of the paglachat API")
	fs.StringVar(&f.DataDir, "data-dir", f.DataDir, "Directory for guest conversation storage")
	fs.StringVar(&f.ChatID, "chat-id", f.ChatID, "Resume an existing guest conversation")
}

func init() {
	f := NewChatFlags()

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the Pagla AI Assistant as a guest",
		Long: `Opens an interactive guest session. History is kept on local disk only;
nothing is written to the server's database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGuestChat(cmd, f)
		},
	}

	f.BindFlags(cmd.Flags())
	rootCmd.AddCommand(cmd)
}

func runGuestChat(cmd *cobra.Command, f *ChatFlags) error {
	ctx := cmd.Context()

	store, err := localstore.New(f.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	client := chatclient.New(chatclient.WithServerURL(f.ServerURL))
	conversation := view.New()

	// chatID is read by the change-subscription goroutine below.
	var mu sync.Mutex
	chatID := f.ChatID
	currentChatID := func() string {
		mu.Lock()
		defer mu.Unlock()
		return chatID
	}
	setChatID := func(id string) {
		mu.Lock()
		chatID = id
		mu.Unlock()
	}

	if id := currentChatID(); id != "" {
		history, err := store.ListMessages(ctx, localUserID, id)
		if err != nil {
			return err
		}
		conversation.ApplySnapshot(history)
		printTranscript(conversation.Messages())
	}

	// Re-read the blob whenever another writer in this process touches it.
	// ApplySnapshot drops the read on the floor while a turn is in flight.
	changes, err := store.Subscribe(ctx)
	if err != nil {
		return err
	}
	go func() {
		for msg := range changes {
			if id := currentChatID(); id != "" && string(msg.Payload) == id {
				if history, err := store.ListMessages(ctx, localUserID, id); err == nil {
					conversation.ApplySnapshot(history)
				}
			}
			msg.Ack()
		}
	}()

	fmt.Println("Chatting as a guest. Your history stays on this machine. Ctrl-D to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}

		prompt := strings.TrimSpace(scanner.Text())
		if prompt == "" {
			continue
		}

		userMessage := chatv1.Message{
			ID:        localstore.NewMessageID(time.Now()),
			Role:      chatv1.RoleUser,
			Content:   prompt,
			Timestamp: time.Now(),
		}

		guestHistory, err := store.ListMessages(ctx, localUserID, currentChatID())
		if err != nil {
			log.WithError(err).Error("could not read local history")
			continue
		}

		if !conversation.Dispatch(userMessage) {
			// A turn is already awaiting its reply.
			continue
		}

		resp, err := client.SendMessage(ctx, chatserver.SendChatRequest{
			Prompt:       prompt,
			ChatID:       currentChatID(),
			UserID:       localUserID,
			IsGuest:      true,
			GuestHistory: guestHistory,
		})
		if err != nil {
			conversation.Fail()
			fmt.Printf("error: %v\n", err)
			continue
		}

		conversation.Resolve(*resp.AIMessage)

		if resp.NewChatID != "" {
			setChatID(resp.NewChatID)
			if err := store.EnsureConversation(resp.NewChatID, chat.TruncateTitle(prompt), localUserID); err != nil {
				log.WithError(err).Warning("could not register guest conversation")
			}
		}

		// The send endpoint never persists guest turns; that's on us.
		if err := store.PutMessages(currentChatID(), userMessage, *resp.AIMessage); err != nil {
			log.WithError(err).Warning("could not persist guest turn")
		}

		fmt.Printf("pagla> %s\n", resp.AIMessage.Content)
	}

	return scanner.Err()
}

func printTranscript(messages []chatv1.Message) {
	for _, msg := range messages {
		speaker := "you"
		if msg.Role == chatv1.RoleModel {
			speaker = "pagla"
		}
		fmt.Printf("%s> %s\n", speaker, msg.Content)
	}
}
