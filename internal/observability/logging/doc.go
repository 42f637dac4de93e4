// Package logging builds the slog loggers used by the API server and the
// autopost worker, and carries loggers and request IDs through
// context.Context.
//
// Production binaries use NewLogger (JSON to stdout, level from the
// LOG_LEVEL environment variable); NewTextLogger exists for local
// development. WithRequestID stamps every line emitted for one request
// with the ID minted by the requestid middleware:
//
//	logger := logging.NewLogger()
//	logger.Info("pipeline run started", slog.String("genre", genre))
//
//	func handleRequest(ctx context.Context) {
//	    logger := logging.WithRequestID(ctx, slog.Default())
//	    logger.Info("generating ideas")
//	}
package logging
