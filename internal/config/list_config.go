package config

type ListConfig interface {
	GetDefaultPage() int
	GetDefaultPageSize() int
}

type Lists struct{}

var _ ListConfig = Lists{}

func (Lists) GetDefaultPage() int {
	return 0
}

func (Lists) GetDefaultPageSize() int {
	return GetEnvInt("DEFAULT_PAGE_SIZE", 10)
}
