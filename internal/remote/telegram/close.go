package telegram

// Close stops the update poller and drops the idle API connections. It is
// safe to call more than once.
func (b *Bot) Close() {
	if b == nil || b.bot == nil {
		return
	}
	b.stopOnce.Do(b.bot.StopReceivingUpdates)
	if c, ok := b.bot.Client.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}
