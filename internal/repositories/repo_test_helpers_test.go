package repositories

func stringPtr(s string) *string {
	return &s
}
