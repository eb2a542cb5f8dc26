// Package clientcli provides a client library for filevault servers.
//
// It supports register, login, upload, download, delete, list, and metadata
// operations with bearer-token authentication. The package includes
// profile-based configuration for managing connections to multiple servers;
// a profile stores the token obtained by the last login.
//
// # Basic Usage
//
// Create a client and upload a file:
//
//	cfg := &clientcli.Config{
//		Endpoint: "http://localhost:5000",
//		Token:    "your-bearer-token",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath:      "./report.pdf",
//		FileIdentifier: "q3-report",
//		Metadata:       map[string]string{"quarter": "3"},
//	})
//
// # Profile Configuration
//
// Use profiles to manage multiple server configurations:
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := clientcli.ConfigFromProfile(profile)
//	client, err := clientcli.New(cfg)
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatList(os.Stdout, result)
package clientcli
