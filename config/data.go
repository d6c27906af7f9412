package config

// Data holds backing service configuration.
type Data struct {
	MongoDB *MongoDB
}

// MongoDB holds document store connection settings and the well-known system
// collection names.
type MongoDB struct {
	URI                   string
	Database              string
	ItemsCollection       string
	VersionsCollection    string
	EnumeratorsCollection string
}

func getData(l *loader) *Data {
	return &Data{
		MongoDB: &MongoDB{
			URI:                   l.getSecret("MONGO_CONNECTION_STRING", "mongodb://mongodb:27017"),
			Database:              l.getString("MONGO_DB_NAME", "mentorhub"),
			ItemsCollection:       l.getString("ITEMS_COLLECTION_NAME", "Items"),
			VersionsCollection:    l.getString("VERSIONS_COLLECTION_NAME", "CollectionVersions"),
			EnumeratorsCollection: l.getString("ENUMERATORS_COLLECTION_NAME", "DatabaseEnumerators"),
		},
	}
}
