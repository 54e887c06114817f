package cmd

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/paglaai/paglachat/pkg/ai"
	"github.com/paglaai/paglachat/pkg/chat"
	"github.com/paglaai/paglachat/pkg/chatserver"
	"github.com/paglaai/paglachat/pkg/flags"
)

type ServerFlags struct {
	DBFlags    *flags.PostgresFlags
	AIFlags    *flags.AIFlags
	CacheFlags *flags.CacheFlags

	ListenAddr  string
	MetricsAddr string
}

func NewServerFlags() *ServerFlags {
	return &ServerFlags{
		DBFlags:     flags.NewPostgresDatabaseFlags(""),
		AIFlags:     flags.NewAIFlags(),
		CacheFlags:  flags.NewCacheFlags(),
		ListenAddr:  ":8080",
		MetricsAddr: ":2112",
	}
}

func (f *ServerFlags) BindFlags(fs *pflag.FlagSet) {
	f.DBFlags.BindFlags(fs)
	f.AIFlags.BindFlags(fs)
	f.CacheFlags.BindFlags(fs)
	fs.StringVar(&f.ListenAddr, "listen", f.ListenAddr, "The address to serve the chat API on (default :8080)")
	fs.StringVar(&f.MetricsAddr, "listen-metrics", f.MetricsAddr, "The address to serve prometheus metrics on (default :2112)")
}

func init() {
	f := NewServerFlags()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API",
		Run: func(cmd *cobra.Command, args []string) {
			dbc, err := f.DBFlags.GetDBClient()
			if err != nil {
				log.WithError(err).Fatal("could not connect to db")
			}

			if err := dbc.UpdateSchema(); err != nil {
				log.WithError(err).Fatal("could not migrate database schema")
			}

			llmClient, err := f.AIFlags.GetLLMClient(cmd.Context())
			if err != nil {
				log.WithError(err).Fatal("could not create completion client")
			}

			cacheClient, err := f.CacheFlags.GetCacheClient()
			if err != nil {
				log.WithError(err).Fatal("could not create cache client")
			}
			if cacheClient == nil {
				log.Info("no redis URL configured, conversation list caching disabled")
			}

			conversationCache := chatserver.NewConversationCache(cacheClient)
			store := chat.NewPGStore(dbc)
			orchestrator := chat.NewOrchestrator(store, llmClient,
				chat.WithQuotaCheck(ai.IsQuotaError),
				chat.WithNotifier(conversationCache),
			)

			// Serve our metrics endpoint for prometheus to scrape
			go func() {
				http.Handle("/metrics", promhttp.Handler())
				err := http.ListenAndServe(f.MetricsAddr, nil) //nolint
				if err != nil {
					panic(err)
				}
			}()

			server := chatserver.NewServer(f.ListenAddr, orchestrator, store, conversationCache)
			server.Serve()
		},
	}

	f.BindFlags(cmd.Flags())
	rootCmd.AddCommand(cmd)
}
