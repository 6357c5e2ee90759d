package ledger

// SeedBalance is a test helper that force-sets a wallet balance on the
// in-memory store without writing a log entry. Tests that assert the
// reconciliation invariant must fund wallets through Credit instead.
func SeedBalance(s Store, walletID string, amount int64) {
	mem, ok := s.(*inMemoryStore)
	if !ok {
		return
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	if w, exists := mem.wallets[walletID]; exists {
		w.Balance = amount
		mem.wallets[walletID] = w
	}
}
