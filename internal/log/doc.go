// Package log builds the process-wide slog logger.
//
// Loggers are created once at start-up with a level chosen from the
// verbosity flags and handed to every component. Library packages accept
// a *slog.Logger and stay silent when given nil.
//
// All loggers built here go through SecureHandler, which masks values that
// should not end up in shared log files: User-Agent strings (they usually
// carry the operator's contact address), e-mail addresses, credentials in
// URLs and HTTP authentication headers.
//
//	logger := log.NewLogger(os.Stderr, log.LevelFromFlags(verbose, quiet))
//	ctx = log.WithContext(ctx, logger)
//	log.FromContext(ctx).Info("crawl started")
package log
