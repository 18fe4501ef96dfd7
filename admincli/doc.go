// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package admincli implements the offline "passwd" subcommand.

	aplicativo-novo passwd [-admin] [-reset] <username>

The password is read twice from the terminal without echo and written as a
bcrypt hash straight into the credential file named by USERS_FILE or
DATA_DIR. A missing user is created. This is the way back in when every
administrator password is lost or the credential file is damaged:

	aplicativo-novo passwd -admin -reset admin
*/
package admincli
